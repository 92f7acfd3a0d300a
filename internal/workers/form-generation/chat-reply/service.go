package chatreply

import "strings"

const (
	GreetingReply = "Hello! I can help you generate forms. Here's how:\n\n" +
		"• Type \"create a form\" followed by your requirements\n" +
		"• Upload an image of a form using the 📷 button\n" +
		"• Example: \"create a contact form with name, email, and message\"\n\n" +
		"What would you like to create?"

	HelpReply = "I can generate Form.io schemas from your descriptions! Here's how:\n\n" +
		"📝 **Create from text:**\n" +
		"Say \"create a form\" followed by what you need:\n" +
		"  • \"create a contact form with name, email, phone\"\n" +
		"  • \"create a registration form with username and password\"\n\n" +
		"📷 **Create from image:**\n" +
		"Click the image button and upload a screenshot or photo of any form\n\n" +
		"The form will appear on the right side in real-time!"

	DefaultReply = "I'm here to help you create forms! To get started:\n\n" +
		"• Say \"create a form\" and describe what you need\n" +
		"• Or upload an image of a form using the 📷 button\n\n" +
		"Try saying: \"create a contact form\""
)

var greetings = map[string]bool{
	"hello":          true,
	"hi":             true,
	"hey":            true,
	"good morning":   true,
	"good afternoon": true,
	"good evening":   true,
}

var helpPhrases = []string{"help", "what can you do", "how does this work"}

// Reply picks the canned answer for a chat message. Greetings must match
// exactly; help phrases may appear anywhere.
func Reply(message string) string {
	m := strings.ToLower(strings.TrimSpace(message))

	if greetings[m] {
		return GreetingReply
	}
	for _, p := range helpPhrases {
		if strings.Contains(m, p) {
			return HelpReply
		}
	}
	return DefaultReply
}
