package linkedin

import "go-easyapply-automation/internal/board"

// Every CSS selector the adapter uses lives here.
const (
	selResultsSubtitle = ".jobs-search-results-list__subtitle, .jobs-search-results-list__text, .jobs-search-results-list__title-heading small"
	selPagination      = ".jobs-search-pagination, .artdeco-pagination"
	selNextPage        = "button.jobs-search-pagination__button--next, button[aria-label='View next page']"
	selNextIndicator   = "li.artdeco-pagination__indicator--number.active + li button, li.artdeco-pagination__indicator--number.selected + li button"
	selGlobalNav       = "#global-nav"

	selJobList  = ".scaffold-layout__list, .jobs-search-results-list"
	selJobCards = "li.scaffold-layout__list-item, li.jobs-search-results__list-item"
	selCardLink = "a.job-card-container__link, a.job-card-list__title, .job-card-list__title--link"

	selApplyButton   = "button.jobs-apply-button"
	selAppliedBanner = ".artdeco-inline-feedback--success .artdeco-inline-feedback__message, .jobs-s-apply__application-link, .post-apply-timeline__entity-time"

	selTitle           = ".job-details-jobs-unified-top-card__job-title, .jobs-unified-top-card__job-title, h1"
	selCompany         = ".job-details-jobs-unified-top-card__company-name, .jobs-unified-top-card__company-name"
	selPrimary         = ".job-details-jobs-unified-top-card__primary-description-container, .job-details-jobs-unified-top-card__tertiary-description-container, .jobs-unified-top-card__primary-description"
	selInsights        = ".job-details-preferences-and-skills, .job-details-jobs-unified-top-card__job-insight, .job-details-fit-level-preferences"
	selDescription     = "#job-details, .jobs-description__content, [data-testid='expandable-text-box']"
	selDescriptionMore = "button[data-testid='expandable-text-button'], button.jobs-description__footer-button"

	selDialog         = "div[role='dialog']"
	selFormElement    = ".jobs-easy-apply-form-section__grouping, .fb-dash-form-element, [data-test-form-element]"
	selLegend         = "legend, .fb-dash-form-element__label, [data-test-form-builder-radio-button-form-component__title]"
	selLabel          = "label"
	selSelect         = "select"
	selRadio          = "input[type='radio']"
	selCheckbox       = "input[type='checkbox']"
	selTextarea       = "textarea"
	selTel            = "input[type='tel']"
	selEmail          = "input[type='email']"
	selTextInput      = "input[type='text'], input[type='number'], input:not([type])"
	selDiscardConfirm = "button[data-control-name='discard_application_confirm_btn'], button[data-test-dialog-primary-btn]"
	selSaveConfirm    = "button[data-control-name='save_application_btn'], button[data-test-dialog-secondary-btn]"
)

type buttonSelector struct {
	aria  []string
	texts []string
}

// buttons are located by accessible label first, then by role and visible text.
var buttons = map[board.Button]buttonSelector{
	board.Next:     {aria: []string{"Continue to next step", "Weiter zum nächsten Schritt"}, texts: []string{"Next", "Weiter"}},
	board.Previous: {aria: []string{"Back to previous step", "Zurück zum vorherigen Schritt"}, texts: []string{"Back", "Zurück"}},
	board.Review:   {aria: []string{"Review your application", "Bewerbung überprüfen"}, texts: []string{"Review", "Überprüfen"}},
	board.Submit:   {aria: []string{"Submit application", "Bewerbung senden"}, texts: []string{"Submit application", "Bewerbung senden", "Submit"}},
	board.Dismiss:  {aria: []string{"Dismiss", "Verwerfen", "Schließen"}, texts: []string{"Dismiss", "Schließen"}},
	board.Done:     {aria: []string{"Done", "Fertig"}, texts: []string{"Done", "Fertig"}},
	board.Close:    {aria: []string{"Dismiss", "Schließen", "Close"}, texts: []string{"Close", "Schließen"}},
}

var easyApplyTexts = []string{"Easy Apply", "Einfach bewerben"}
var appliedTexts = []string{"Applied", "Beworben", "Application submitted", "Bewerbung gesendet"}
