package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/customers"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/speech"
)

// FallbackNoRecords is spoken when either record is missing.
const FallbackNoRecords = "I couldn't find your EMI details. Please ensure your account ID is correct."

const notAvailable = "N/A"

// Responder turns verified account data into a short spoken summary.
type Responder struct {
	Invoker Invoker
	Model   string
}

// Describe never calls the model when a record is nil.
func (r Responder) Describe(ctx context.Context, inst *customers.Installment, cust *customers.Customer) (string, error) {
	if inst == nil || cust == nil {
		return FallbackNoRecords, nil
	}
	out, err := r.Invoker.Complete(ctx, Request{
		Model:   r.Model,
		System:  SummaryPrompt(*inst, *cust),
		Prompt:  "Please provide the EMI details for the customer.",
		Purpose: PurposeResponse,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SummaryPrompt is the system prompt carrying the account facts.
// The phone number only ever appears masked.
func SummaryPrompt(inst customers.Installment, cust customers.Customer) string {
	var b strings.Builder
	b.WriteString("You are a helpful and polite financial assistant providing EMI details.\n")
	b.WriteString("Here is the customer's information:\n")
	fmt.Fprintf(&b, "- Customer ID: %s\n", cust.ID)
	fmt.Fprintf(&b, "- Account ID: %s\n", cust.AccountID)
	fmt.Fprintf(&b, "- Name: %s\n", cust.FullName)
	fmt.Fprintf(&b, "- Phone Number (masked): %s\n\n", speech.MaskPhone(cust.PhoneNumber))

	b.WriteString("Here is the retrieved EMI data for the customer's loan:\n")
	fmt.Fprintf(&b, "Loan ID: %s\n", inst.LoanID)
	fmt.Fprintf(&b, "Principal Amount: %s\n", FormatMinor(&inst.PrincipalMinor))
	fmt.Fprintf(&b, "Interest Rate: %.2f%%\n", inst.InterestRate)
	fmt.Fprintf(&b, "Tenure (months): %d\n", inst.TenureMonths)
	fmt.Fprintf(&b, "Monthly EMI Amount: %s\n", FormatMinor(inst.AmountDueMinor))
	fmt.Fprintf(&b, "Next Due Date: %s\n", FormatDate(inst.DueDate))
	fmt.Fprintf(&b, "Next Amount Due: %s\n", FormatMinor(inst.AmountDueMinor))
	fmt.Fprintf(&b, "Status: %s\n", inst.Status)
	fmt.Fprintf(&b, "Last Payment Date: %s\n", FormatDate(inst.PaymentDate))
	fmt.Fprintf(&b, "Amount Paid (last): %s\n\n", FormatMinor(inst.AmountPaidMinor))

	b.WriteString("Based on the above information, provide a concise and clear breakdown of the customer's EMI. ")
	b.WriteString("Start by greeting the customer by name. State their monthly EMI, the next due date, and the amount due. ")
	b.WriteString("Mention if the EMI is paid or pending. Keep the response natural for a voice interaction.")
	return b.String()
}

// PlainSummary is spoken when the model is unavailable after verification.
func PlainSummary(inst customers.Installment, cust customers.Customer) string {
	name := strings.TrimSpace(cust.FullName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s. Your monthly EMI for loan %s is %s, next due on %s. The current status is %s.",
		name, inst.LoanID, FormatMinor(inst.AmountDueMinor), FormatDate(inst.DueDate), strings.ToLower(inst.Status))
}

// FormatMinor renders minor units with two decimals, or N/A when absent.
func FormatMinor(v *int64) string {
	if v == nil {
		return notAvailable
	}
	n := *v
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// FormatDate renders YYYY-MM-DD, or N/A when absent.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notAvailable
	}
	return t.Format("2006-01-02")
}
