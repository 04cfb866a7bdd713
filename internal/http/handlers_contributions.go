package http

import (
	"errors"
	"net/http"
	"net/url"

	"contributi/internal/core"
	"contributi/internal/log"
)

type indexPage struct {
	DisplayMonth  string
	CurrentMonth  core.MonthKey
	LastMonth     core.MonthKey
	ShowingAll    bool
	Contributions []core.Contribution
	Summary       []core.PersonTotal
	Form          contributionForm
	Error         string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMonthQuery(r, s.contributions.CurrentMonth())
	if err != nil {
		s.writeError(w, r, err, log.OpParse)
		return
	}
	s.renderIndex(w, r, http.StatusOK, filter, contributionForm{}, "")
}

func (s *Server) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, amount, err := parseContributionForm(w, r)
	if err == nil {
		var saved core.Contribution
		saved, err = s.contributions.Record(ctx, form.Name, amount, form.Details)
		if err == nil {
			s.events.LogContributionCreated(ctx, saved.ID, saved.Name, saved.Amount, saved.MonthYear.String())
			http.Redirect(w, r, "/?month="+url.QueryEscape(saved.MonthYear.String()), http.StatusFound)
			return
		}
	}

	if !errors.Is(err, core.ErrValidation) {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	log.FromContext(ctx).WarnContext(ctx, "Contribution rejected",
		log.FieldOperation, log.OpValidate, log.FieldError, err)
	s.renderIndex(w, r, http.StatusBadRequest, core.ForMonth(s.contributions.CurrentMonth()), form, validationMessage(err))
}

func (s *Server) handleLastMonth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?month="+url.QueryEscape(s.contributions.LastMonth().String()), http.StatusFound)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, filter core.MonthFilter, form contributionForm, formErr string) {
	ov, err := s.contributions.Overview(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}

	s.render(w, r, status, "index.html", indexPage{
		DisplayMonth:  filter.Label(),
		CurrentMonth:  s.contributions.CurrentMonth(),
		LastMonth:     s.contributions.LastMonth(),
		ShowingAll:    filter.All,
		Contributions: ov.Contributions,
		Summary:       ov.Summary,
		Form:          form,
		Error:         formErr,
	})
}

// validationMessage strips the generic validation prefix for display.
func validationMessage(err error) string {
	for _, sentinel := range []error{
		core.ErrEmptyName, core.ErrNameTooLong, core.ErrDetailsTooLong,
		core.ErrInvalidAmount, core.ErrEmptyUsername, core.ErrInvalidMonth,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
