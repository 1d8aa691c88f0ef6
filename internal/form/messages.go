package form

import (
	"fmt"
	"strings"
)

const (
	MsgStart        = "I'd be happy to help you schedule a call. Let me collect some information from you. What's your full name?"
	MsgNotActive    = "Form collection is not active."
	MsgUnknownField = "Unknown field being processed."

	msgNameTooShort   = "Please provide your full name (at least 2 characters)."
	msgNameCharset    = "Please provide a valid name using only letters, spaces, hyphens, dots, and apostrophes."
	msgPhoneUnparsed  = "Please provide a valid phone number (e.g., +1-234-567-8900 or (234) 567-8900)."
	msgPhoneInvalid   = "Please provide a valid phone number."
	msgEmailInvalid   = "Please provide a valid email address (e.g., john@example.com)."
	msgDateUnresolved = "I couldn't understand the date. Please provide a date like 'next Monday', 'tomorrow', or in YYYY-MM-DD format."
	msgTimeInvalid    = "Please provide a valid time format (e.g., 10:00 AM, 14:30, or 2 PM)."
	msgPurposeShort   = "Please provide a brief description of the purpose (at least 5 characters)."
)

func msgDateInvalid(reason string) string {
	return fmt.Sprintf("Invalid date: %s. Please provide a future date.", reason)
}

func msgNameAccepted(name string) string {
	return fmt.Sprintf("Thank you, %s! Now, please provide your phone number.", name)
}

func msgPhoneAccepted(phone string) string {
	return fmt.Sprintf("Got it! Your phone number is %s. What's your email address?", phone)
}

func msgEmailAccepted(email string) string {
	return fmt.Sprintf("Perfect! Your email is %s. When would you like to schedule the appointment? "+
		"(You can say things like 'next Monday', 'tomorrow', or provide a specific date)", email)
}

func msgDateAccepted(display string) string {
	return fmt.Sprintf("Great! I've scheduled it for %s. What time would you prefer? (e.g., 10:00 AM, 2:30 PM)", display)
}

func msgTimeAccepted(t string) string {
	return fmt.Sprintf("Perfect! Time set for %s. Finally, could you briefly tell me the purpose of this call or meeting?", t)
}

// summary renders the confirmation shown when the form completes.
func summary(r Record) string {
	var b strings.Builder
	b.WriteString("Perfect! I've collected all the information. Here's your appointment summary:\n\n")
	b.WriteString("**Appointment Details:**\n")
	fmt.Fprintf(&b, "- **Name:** %s\n", r.Value(FieldName))
	fmt.Fprintf(&b, "- **Phone:** %s\n", r.Value(FieldPhone))
	fmt.Fprintf(&b, "- **Email:** %s\n", r.Value(FieldEmail))
	fmt.Fprintf(&b, "- **Date:** %s\n", r.Value(FieldAppointmentDate))
	fmt.Fprintf(&b, "- **Time:** %s\n", r.Value(FieldAppointmentTime))
	fmt.Fprintf(&b, "- **Purpose:** %s\n\n", r.Value(FieldPurpose))
	b.WriteString("Your appointment has been scheduled! Someone from our team will call you at the specified date and time. ")
	b.WriteString("You'll also receive a confirmation email shortly.\n\n")
	b.WriteString("Is there anything else I can help you with?")
	return b.String()
}
