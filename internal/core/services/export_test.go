package services

import (
	"html/template"

	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
)

// SetNotifyTemplates swaps the HTML layouts of a notifier from NewNotifyService.
func SetNotifyTemplates(n portssvc.NotifierSvc, success, failure *template.Template) {
	svc := n.(*notifyService)
	if success != nil {
		svc.successTmpl = success
	}
	if failure != nil {
		svc.failureTmpl = failure
	}
}
