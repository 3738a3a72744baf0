package rest

import (
	"fmt"

	"crmcore/pkg/domain"
)

// fieldError is a request field that names a record or status the workspace
// does not hold. It is reported like a validator failure.
type fieldError struct {
	Field string
	Tag   string
}

func (e fieldError) Error() string {
	return fmt.Sprintf("field %s failed %s", e.Field, e.Tag)
}

func (s *Server) checkLeadStatus(status string) error {
	for _, known := range s.svc.LeadStatuses() {
		if known == status {
			return nil
		}
	}
	return fieldError{Field: "Status", Tag: "leadstatus"}
}

func (s *Server) checkClient(id string) error {
	if _, ok := s.svc.GetClient(id); !ok {
		return fieldError{Field: "ClientID", Tag: "exists"}
	}
	return nil
}

func (s *Server) checkRelated(relatedType domain.RelatedType, id string) error {
	var ok bool
	switch relatedType {
	case domain.RelatedLead:
		_, ok = s.svc.GetLead(id)
	case domain.RelatedClient:
		_, ok = s.svc.GetClient(id)
	case domain.RelatedProject:
		_, ok = s.svc.GetProject(id)
	}
	if !ok {
		return fieldError{Field: "RelatedID", Tag: "exists"}
	}
	return nil
}
