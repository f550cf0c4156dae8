// Package eval resolves form expressions: quoted literals, `[..]` and `{..}`
// literals, infix operators, `!` negation, nested function calls, `@{field}`
// markers and bare field names. Function calls dispatch through a
// functions.Registry; infix operators are reduced by a compiled expr program
// cached per operator shape.
//
// Evaluation is fail-soft. A failure anywhere in the top-level call (unknown
// function, arity mismatch, handler error, recovered panic) yields the
// original expression text with Result.OK false. Failures inside nested
// arguments degrade to that argument's text so TRY() can observe them.
package eval
