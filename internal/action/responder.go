package action

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region simulated-responder
// SimulatedResponder stands in for a language model. Two templates get
// canned replies; every other template echoes the substituted prompt.
type SimulatedResponder struct{}

// Respond implements Responder.
func (SimulatedResponder) Respond(req Request) string {
	switch req.TemplateName {
	case state.TemplateGreeting:
		return fmt.Sprintf("Hello! I'm %s. How can I help you today?", req.Identity.Name)
	case state.TemplateNameInquiry:
		return strings.TrimSpace(fmt.Sprintf("My name is %s. %s", req.Identity.Name, req.Identity.Description))
	}
	model := req.Model
	if model == "" {
		model = "llm"
	}
	return fmt.Sprintf("[Simulated %s response using %q] %s", model, req.TemplateName, req.Prompt)
}
// #endregion simulated-responder
