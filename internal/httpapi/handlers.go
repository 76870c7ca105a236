package httpapi

import (
	"net/http"
	"strconv"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/contract"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitAllocation(w http.ResponseWriter, r *http.Request) {
	var req contract.SubmitAllocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Allocations.Submit(r.Context(), req.ToApp(actorFrom(r.Context())))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromSubmit(res))
}

func (s *Server) handleDecideAllocation(w http.ResponseWriter, r *http.Request) {
	var req contract.DecideAllocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Allocations.Decide(r.Context(), req.ToApp(actorFrom(r.Context())))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromDecide(res))
}

func (s *Server) handleRequestDeletion(w http.ResponseWriter, r *http.Request) {
	var req contract.RequestDeletionRequest
	if !s.decode(w, r, &req) {
		return
	}
	alloc, err := s.svc.Allocations.RequestDeletion(r.Context(), req.AllocationID, actorFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromAllocation(alloc))
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	phaseID := r.URL.Query().Get("phaseId")
	consultantID := r.URL.Query().Get("consultantId")

	var views []app.AllocationView
	var err error
	switch {
	case phaseID != "" && consultantID != "":
		s.writeError(w, r, domain.Validationf("use phaseId or consultantId, not both"))
		return
	case phaseID != "":
		views, err = s.svc.Allocations.ListByPhase(r.Context(), phaseID)
	case consultantID != "":
		views, err = s.svc.Allocations.ListByConsultant(r.Context(), consultantID)
	default:
		s.writeError(w, r, domain.Validationf("phaseId or consultantId is required"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromViews(views))
}

func (s *Server) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Allocations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromView(*view))
}

func (s *Server) handleProposeWeekly(w http.ResponseWriter, r *http.Request) {
	var req contract.ProposeWeeklyRequest
	if !s.decode(w, r, &req) {
		return
	}
	appReq, err := req.ToApp(actorFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Weekly.Propose(r.Context(), appReq)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromWeeklyResult(res))
}

func (s *Server) handleDecideWeekly(w http.ResponseWriter, r *http.Request) {
	var req contract.DecideWeeklyRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Weekly.Decide(r.Context(), req.ToApp(actorFrom(r.Context())))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromWeeklyResult(res))
}

func (s *Server) handleListWeekly(w http.ResponseWriter, r *http.Request) {
	allocationID := r.URL.Query().Get("allocationId")
	if allocationID == "" {
		s.writeError(w, r, domain.Validationf("allocationId is required"))
		return
	}
	weeks, err := s.svc.Weekly.ListByAllocation(r.Context(), allocationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromWeeks(weeks))
}

func (s *Server) handleListUnplanned(w http.ResponseWriter, r *http.Request) {
	status := domain.UnplannedStatus(r.URL.Query().Get("status"))
	list, err := s.svc.Reallocations.ListUnplanned(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromUnplannedList(list))
}

func (s *Server) handleGetUnplanned(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Reallocations.GetUnplanned(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromUnplanned(u))
}

func (s *Server) handleReallocate(w http.ResponseWriter, r *http.Request) {
	var req contract.ReallocateRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Reallocations.Request(r.Context(), req.ToApp(chi.URLParam(r, "id"), actorFrom(r.Context())))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromReallocation(res))
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	var req contract.ForfeitRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.svc.Reallocations.Forfeit(r.Context(), app.ForfeitRequest{
		UnplannedID: chi.URLParam(r, "id"),
		Actor:       actorFrom(r.Context()),
		Notes:       req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromUnplanned(u))
}

func (s *Server) handleRetarget(w http.ResponseWriter, r *http.Request) {
	var req contract.RetargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Reallocations.Retarget(r.Context(), app.RetargetRequest{
		ProposalID:    chi.URLParam(r, "id"),
		TargetPhaseID: req.TargetPhaseID,
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromReallocation(res))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, domain.Validationf("unread must be true or false"))
			return
		}
		unreadOnly = parsed
	}
	list, err := s.svc.Notifications.Inbox(r.Context(), actorFrom(r.Context()), unreadOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, contract.FromNotifications(list))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Notifications.MarkRead(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.Envelope{Success: true, Message: "notification marked read"})
}
