package workflow

import (
	"fmt"
	"strings"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
)

// Decision is the answer to a pending request.
type Decision string

const (
	Accept Decision = "accept"
	Reject Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case Accept, Reject:
		return d, nil
	default:
		return "", apperr.Validation("decision must be accept or reject")
	}
}

// Status is the request status the decision leads to.
func (d Decision) Status() models.RequestStatus {
	if d == Accept {
		return models.StatusAccepted
	}
	return models.StatusRejected
}

// transition checks a pending -> accepted|rejected move. Requests are
// terminal once decided; anything else is an illegal transition.
func transition(what string, from models.RequestStatus, d Decision) (models.RequestStatus, error) {
	if d != Accept && d != Reject {
		return "", apperr.Validation("decision must be accept or reject")
	}
	to := d.Status()
	if from != models.StatusPending {
		return "", apperr.IllegalTransition(what, string(from), string(to))
	}
	return to, nil
}

// alreadyRequested reports a repeat join request together with where the
// first one stands.
func alreadyRequested(what string, status models.RequestStatus) error {
	return apperr.Constraint(fmt.Sprintf("you have already requested to join this %s (request is %s)", what, status))
}
