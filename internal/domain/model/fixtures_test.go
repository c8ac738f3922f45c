package model_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

func mustPAN(s string) valueobject.PAN {
	p, err := valueobject.NewPAN(s)
	if err != nil {
		panic(err)
	}
	return p
}

func mustAadhaar(s string) valueobject.Aadhaar {
	a, err := valueobject.NewAadhaar(s)
	if err != nil {
		panic(err)
	}
	return a
}

func validApplicant(amount int64) model.Applicant {
	return model.Applicant{
		FullName:            "Asha Verma",
		DateOfBirth:         time.Date(1988, 4, 2, 0, 0, 0, 0, time.UTC),
		PAN:                 mustPAN("ABCDE1234F"),
		Aadhaar:             mustAadhaar("123456789012"),
		Email:               "asha@example.com",
		Phone:               "9876543210",
		Pincode:             "560001",
		EmploymentType:      valueobject.EmploymentSalaried,
		EmployerName:        "Acme Ltd",
		MonthlyIncome:       decimal.NewFromInt(120_000),
		WorkExperienceYears: 6,
		LoanAmount:          decimal.NewFromInt(amount),
		TenureYears:         20,
		Purpose:             valueobject.PurposeHomePurchase,
	}
}

func mustActor(email string, role valueobject.Role) model.Actor {
	a, err := model.NewActor(email, "Staff", role, time.Now())
	if err != nil {
		panic(err)
	}
	return a
}
