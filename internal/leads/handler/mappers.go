package handler

import (
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/transport"
)

func toLeadResponse(view lifecycle.LeadView) transport.LeadResponse {
	lead := view.Lead
	resp := transport.LeadResponse{
		ID:                    lead.ID,
		DealerID:              lead.DealerID,
		VehicleID:             lead.VehicleID,
		BuyerID:               lead.BuyerID,
		UserFullName:          lead.UserFullName,
		UserEmail:             lead.UserEmail,
		UserPhone:             lead.UserPhone,
		Score:                 lead.Score,
		EngagementScore:       lead.EngagementScore,
		RecencyScore:          lead.RecencyScore,
		IntentScore:           lead.IntentScore,
		Temperature:           string(lead.Temperature),
		ConversionProbability: lead.ConversionProbability,
		Status:                string(lead.Status),
		DealerNotes:           lead.DealerNotes,
		ViewCount:             lead.ViewCount,
		ContactCount:          lead.ContactCount,
		FavoriteCount:         lead.FavoriteCount,
		ShareCount:            lead.ShareCount,
		ComparisonCount:       lead.ComparisonCount,
		HasScheduledTestDrive: lead.HasScheduledTestDrive,
		HasRequestedFinancing: lead.HasRequestedFinancing,
		FirstInteractionAt:    lead.FirstInteractionAt,
		LastInteractionAt:     lead.LastInteractionAt,
		LastContactedAt:       lead.LastContactedAt,
		ConvertedAt:           lead.ConvertedAt,
		RecommendedAction:     view.RecommendedAction,
		ScoreVersion:          lead.ScoreVersion,
		ScoredAt:              lead.ScoredAt,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
	}
	if view.RecentActions != nil {
		resp.RecentActions = toActionResponses(view.RecentActions)
	}
	return resp
}

func toActionResponse(a repository.Action) transport.ActionResponse {
	return transport.ActionResponse{
		ID:          a.ID,
		LeadID:      a.LeadID,
		ActionType:  string(a.ActionType),
		OccurredAt:  a.OccurredAt,
		ScoreImpact: a.ScoreImpact,
		Description: a.Description,
	}
}

func toActionResponses(actions []repository.Action) []transport.ActionResponse {
	out := make([]transport.ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, toActionResponse(a))
	}
	return out
}

func toStatusChangeResponses(changes []repository.StatusChange) []transport.StatusChangeResponse {
	out := make([]transport.StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, transport.StatusChangeResponse{
			ID:        c.ID,
			OldStatus: string(c.OldStatus),
			NewStatus: string(c.NewStatus),
			Notes:     c.Notes,
			ChangedAt: c.ChangedAt,
		})
	}
	return out
}
