package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"contributi/internal/core"
)

const maxFormBytes = 64 << 10

// contributionForm is the body of POST /.
type contributionForm struct {
	Name    string `form:"name" validate:"notblank,max=100"`
	Amount  string `form:"amount" validate:"required"`
	Details string `form:"details" validate:"max=2000"`
}

// loginForm is the body of POST /admin/login.
type loginForm struct {
	Username string `form:"username" validate:"notblank,max=100"`
	Next     string `form:"next"`
}

// monthQuery is the query string of GET /.
type monthQuery struct {
	Month string `form:"month" validate:"omitempty,monthyear|eq=all"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("monthyear", func(fl validator.FieldLevel) bool {
		_, err := core.ParseMonthKey(fl.Field().String())
		return err == nil
	})
	return v
}

// parseContributionForm reads and checks a contribution submission.
func parseContributionForm(w http.ResponseWriter, r *http.Request) (contributionForm, float64, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return contributionForm{}, 0, core.Invalid(fmt.Errorf("malformed form: %w", err))
	}

	form := contributionForm{
		Name:    stripControl(r.PostForm.Get("name")),
		Amount:  strings.TrimSpace(r.PostForm.Get("amount")),
		Details: sanitizeInput(r.PostForm.Get("details")),
	}
	if err := validate.Struct(form); err != nil {
		return form, 0, formError(err)
	}

	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return form, 0, core.Invalid(err)
	}
	return form, amount, nil
}

func parseLoginForm(w http.ResponseWriter, r *http.Request) (loginForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return loginForm{}, core.Invalid(fmt.Errorf("malformed form: %w", err))
	}

	form := loginForm{
		Username: sanitizeInput(r.PostForm.Get("username")),
		Next:     r.PostForm.Get("next"),
	}
	if err := validate.Struct(form); err != nil {
		return form, formError(err)
	}
	return form, nil
}

// parseMonthQuery resolves the month filter of the index page. An absent
// month means the current one, "all" disables filtering.
func parseMonthQuery(r *http.Request, current core.MonthKey) (core.MonthFilter, error) {
	q := monthQuery{Month: strings.TrimSpace(r.URL.Query().Get("month"))}
	if err := validate.Struct(q); err != nil {
		return core.MonthFilter{}, formError(err)
	}

	switch q.Month {
	case "":
		return core.ForMonth(current), nil
	case "all":
		return core.AllMonths(), nil
	default:
		return core.ForMonth(core.MonthKey(q.Month)), nil
	}
}

// formError turns validator output into a core validation error, using the
// domain sentinel where one exists.
func formError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.Invalid(err)
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "name" && fe.Tag() == "notblank":
		return core.Invalid(core.ErrEmptyName)
	case fe.Field() == "name" && fe.Tag() == "max":
		return core.Invalid(core.ErrNameTooLong)
	case fe.Field() == "details":
		return core.Invalid(core.ErrDetailsTooLong)
	case fe.Field() == "amount":
		return core.Invalid(core.ErrInvalidAmount)
	case fe.Field() == "username" && fe.Tag() == "notblank":
		return core.Invalid(core.ErrEmptyUsername)
	case fe.Field() == "username":
		return core.Invalid(core.ErrNameTooLong)
	case fe.Field() == "month":
		return core.Invalid(core.ErrInvalidMonth)
	default:
		return core.Invalid(fmt.Errorf("%s: failed %q check", fe.Field(), fe.Tag()))
	}
}
