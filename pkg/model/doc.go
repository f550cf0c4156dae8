// Package model defines the workflow form definition consumed by the
// expression runtime. A Form is an ordered list of Fields; each field carries
// up to three authored expressions (default value, validation clauses and a
// visibility condition) plus structured constraints (min/max value, length
// bounds, regex) that Field.Rules folds into the validation clause list.
// Types live in internal/model and are re-exported here.
package model
