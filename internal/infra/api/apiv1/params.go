package apiv1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"chitfund-backend/internal/domain/model"
)

func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	return v, err
}

// planFilter binds ?keyword=&page=&limit=.
func planFilter(r *http.Request) (model.PlanFilter, error) {
	var (
		f       model.PlanFilter
		keyword *string
		page    *int
		limit   *int
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "keyword", q, &keyword); err != nil {
		return f, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return f, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return f, err
	}
	if keyword != nil {
		f.Keyword = *keyword
	}
	if page != nil {
		f.Page = *page
	}
	if limit != nil {
		f.Limit = *limit
	}
	return f.Normalize(), nil
}

// dateParam binds a required ?date=YYYY-MM-DD.
func dateParam(r *http.Request) (openapi_types.Date, error) {
	var d openapi_types.Date
	err := runtime.BindQueryParameter("form", true, true, "date", r.URL.Query(), &d)
	return d, err
}
