package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	corecontrollers "github.com/eventflow/eventflow/modules/core/presentation/controllers"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/events/services"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

const (
	hashIDVar       = "hashID"
	mainPhotoField  = "main_photo"
	storyPhotoField = "photos"
	// CodePlanLimit marks a create refused by the workspace plan.
	CodePlanLimit = "PLAN_LIMIT_REACHED"
)

func pageFrom(r *http.Request) services.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("per_page"))
	if size > 100 {
		size = 100
	}
	return services.Page{Number: max(number, 1), Size: size}
}

func pagination(page services.Page, total int64, count int) map[string]any {
	return map[string]any{"page": page.Number, "total": total, "count": count}
}

// writeError handles the events errors and leaves the rest to the core
// mapping.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = httpapi.WriteValidation(w, verr.Fields)
	case errors.Is(err, services.ErrPlanLimitReached):
		_ = httpapi.WriteError(w, http.StatusForbidden, CodePlanLimit, err.Error(), nil)
	case errors.Is(err, services.ErrEventNotFound), errors.Is(err, persistence.ErrRSVPConflict):
		httpapi.NotFound(w, "event not found")
	case errors.Is(err, services.ErrForbidden):
		httpapi.Forbidden(w, "this action is not allowed")
	default:
		corecontrollers.WriteServiceError(w, r, err)
	}
}

func hashID(r *http.Request) string {
	return mux.Vars(r)[hashIDVar]
}
