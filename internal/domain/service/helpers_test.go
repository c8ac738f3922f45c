package service_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func applicant(amount int64) model.Applicant {
	pan, _ := valueobject.NewPAN("ABCDE1234F")
	aadhaar, _ := valueobject.NewAadhaar("123456789012")
	return model.Applicant{
		FullName:            "Ravi Kumar",
		PAN:                 pan,
		Aadhaar:             aadhaar,
		Email:               "ravi@example.com",
		Phone:               "9123456780",
		EmploymentType:      valueobject.EmploymentSalaried,
		MonthlyIncome:       decimal.NewFromInt(150_000),
		WorkExperienceYears: 8,
		LoanAmount:          decimal.NewFromInt(amount),
		TenureYears:         20,
		Purpose:             valueobject.PurposeHomePurchase,
	}
}

func application(amount int64) model.LoanApplication {
	app, err := model.NewLoanApplication("LA100001", applicant(amount), 80, decimal.Zero, testNow)
	if err != nil {
		panic(err)
	}
	return app.ClearEvents()
}

func actor(role valueobject.Role) model.Actor {
	a, err := model.NewActor(role.String()+"@bank.in", role.String(), role, testNow)
	if err != nil {
		panic(err)
	}
	return a
}
