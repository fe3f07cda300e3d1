package dialog

import "fmt"

const (
	msgGreeting       = "Hello! Welcome to our financial assistant. How can I help you today?"
	msgRepromptQuery  = "I didn't catch that. Please tell me your query, like 'What is my EMI?' or 'Connect to agent'."
	msgUnclear        = "I'm sorry, I didn't understand your request. You can ask about your EMI or say 'connect to agent'."
	msgAskAccountID   = "To fetch your EMI details, please speak or enter your 10-digit account ID."
	msgAccountMissing = "I could not find an account with that ID. Please try again or say 'connect to agent'."
	msgOTPSendFailed  = "There was an issue sending the OTP. Please try again later."
	msgOTPReprompt    = "I didn't catch that. Please speak the 6-digit OTP sent to your registered mobile number."
	msgOTPIncorrect   = "That OTP is incorrect. Please try again or say 'connect to agent'."
	msgEMIUnavailable = "I could not retrieve your EMI details. Please contact support if the issue persists. Thank you."
	msgThanks         = " Thank you for calling."

	msgHandoffWait         = "Please wait while I connect you to the next available agent."
	msgHandoffHold         = "Please hold while I connect you to the next available agent."
	msgHandoffUnconfigured = "I am unable to connect you to an agent right now. Please try again later."
	msgHandoffFailed       = "I'm sorry, I encountered an issue trying to connect you to an agent. Please try again later."
	msgHandoffAfterBridge  = "Thank you for calling."
	msgCallEnded           = "I'm sorry, something went wrong. Please call again."
	msgUnexpectedError     = "I apologize, an unexpected error occurred. Please try again later."
)

func otpSentMessage(last4 string) string {
	return fmt.Sprintf("I have sent a 6-digit OTP to your registered mobile number ending in %s. Please speak the OTP now.", last4)
}

func handoffSummary(maskedCaller, utterance string) string {
	return fmt.Sprintf("Voice call handoff requested by %s for general assistance. Initial query: '%s'", maskedCaller, utterance)
}
