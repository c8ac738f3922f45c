package usecase

import (
	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
)

const dateLayout = "2006-01-02"

func toApplicationResponse(app model.LoanApplication) dto.ApplicationResponse {
	a := app.Applicant()
	return dto.ApplicationResponse{
		ID:                app.ID(),
		ApplicationNumber: app.ApplicationNumber(),
		FullName:          a.FullName,
		Email:             a.Email,
		Phone:             a.Phone,
		PAN:               a.PAN.Masked(),
		Aadhaar:           a.Aadhaar.Masked(),
		EmploymentType:    a.EmploymentType.String(),
		MonthlyIncome:     a.MonthlyIncome,
		LoanAmount:        a.LoanAmount,
		TenureYears:       a.TenureYears,
		Purpose:           a.Purpose.String(),
		HasCoApplicant:    a.HasCoApplicant(),
		Status:            app.Status().String(),
		EligibilityScore:  app.EligibilityScore(),
		EstimatedEmi:      app.EstimatedEmi(),
		Version:           app.Version(),
		CreatedAt:         app.CreatedAt(),
		UpdatedAt:         app.UpdatedAt(),
	}
}

func toHistoryEntryResponse(e model.ApprovalHistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:         e.ID(),
		ActorID:    e.ActorID(),
		ActorEmail: e.ActorEmail(),
		Stage:      e.Stage().String(),
		Decision:   e.Decision().String(),
		Remarks:    e.Remarks(),
		CreatedAt:  e.CreatedAt(),
	}
}

func toOfferResponse(o model.LoanOffer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:                o.ID(),
		ApplicationID:     o.ApplicationID(),
		OfferLetterNumber: o.OfferLetterNumber(),
		ApprovedAmount:    o.ApprovedAmount(),
		InterestRate:      o.InterestRate(),
		TenureYears:       o.TenureYears(),
		EmiAmount:         o.EmiAmount(),
		ProcessingFee:     o.ProcessingFee(),
		Terms:             o.Terms(),
		IssuedBy:          o.IssuedBy(),
		CreatedAt:         o.CreatedAt(),
	}
}

func toRowResponse(r model.EmiScheduleRow) dto.ScheduleRowResponse {
	resp := dto.ScheduleRowResponse{
		ID:               r.ID(),
		EmiNumber:        r.EmiNumber(),
		DueDate:          r.DueDate().Format(dateLayout),
		EmiAmount:        r.EmiAmount(),
		Principal:        r.Principal(),
		Interest:         r.Interest(),
		OutstandingAfter: r.OutstandingAfter(),
		Status:           r.Status().String(),
		PaidAmount:       r.PaidAmount(),
		LateFee:          r.LateFee(),
		Remarks:          r.Remarks(),
	}
	if paid := r.PaidDate(); paid != nil {
		resp.PaidDate = paid.Format(dateLayout)
	}
	return resp
}

func toRowResponses(rows []model.EmiScheduleRow) []dto.ScheduleRowResponse {
	out := make([]dto.ScheduleRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRowResponse(r))
	}
	return out
}

func toActorResponse(a model.Actor) dto.ActorResponse {
	return dto.ActorResponse{
		ID:       a.ID(),
		Email:    a.Email(),
		FullName: a.FullName(),
		Role:     a.Role().String(),
		Active:   a.Active(),
	}
}
