package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	formexpr "github.com/goliatone/go-formexpr"
	"github.com/goliatone/go-formexpr/pkg/definition"
	"github.com/goliatone/go-formexpr/pkg/model"
	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

// remoteTimeout bounds OpenAPI documents fetched over HTTP.
const remoteTimeout = 30 * time.Second

type sourcedForm struct {
	Source string
	Form   model.Form
}

// statInput maps a missing local path onto the file-not-found exit code.
func statInput(path string, openapi bool) error {
	if openapi {
		if src, err := pkgopenapi.ParseSource(path); err == nil && src.Kind() == pkgopenapi.SourceKindURL {
			return nil
		}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", path)
		}
		return exitError(exitFileNotFound, "reading %s: %v", path, err)
	}
	return nil
}

// readForms loads the forms defined at path. Directories are walked for
// definition files; with openapi set, path is an OpenAPI document or URL.
func readForms(ctx context.Context, path string, openapi bool) ([]sourcedForm, error) {
	if openapi {
		src, err := pkgopenapi.ParseSource(path)
		if err != nil {
			return nil, err
		}
		forms, err := formexpr.ImportOpenAPI(ctx, src, pkgopenapi.WithHTTPFallback(remoteTimeout))
		if err != nil {
			return nil, err
		}
		out := make([]sourcedForm, 0, len(forms))
		for _, form := range forms {
			out = append(out, sourcedForm{Source: path, Form: form})
		}
		return out, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		store, err := definition.LoadFS(os.DirFS(path))
		if err != nil {
			return nil, err
		}
		out := make([]sourcedForm, 0, len(store.IDs()))
		for _, id := range store.IDs() {
			form, _ := store.Form(id)
			out = append(out, sourcedForm{Source: filepath.Join(path, store.Source(id)), Form: form})
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	forms, err := definition.Parse(data, path)
	if err != nil {
		return nil, err
	}
	store := definition.NewStore()
	for _, form := range forms {
		if err := store.Add(form, path); err != nil {
			return nil, err
		}
	}
	out := make([]sourcedForm, 0, len(forms))
	for _, id := range store.IDs() {
		form, _ := store.Form(id)
		out = append(out, sourcedForm{Source: path, Form: form})
	}
	return out, nil
}

// pickForm selects the form named id, or the only form when id is empty.
func pickForm(forms []sourcedForm, id string) (model.Form, error) {
	if id == "" {
		if len(forms) == 1 {
			return forms[0].Form, nil
		}
		ids := make([]string, 0, len(forms))
		for _, f := range forms {
			ids = append(ids, f.Form.ID)
		}
		return model.Form{}, exitError(exitInputParse, "input defines %d forms %v; choose one with --form", len(forms), ids)
	}
	for _, f := range forms {
		if f.Form.ID == id {
			return f.Form, nil
		}
	}
	return model.Form{}, exitError(exitInputParse, "form %q not found", id)
}
