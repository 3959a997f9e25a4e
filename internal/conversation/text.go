// ABOUTME: Fixed Spanish texts the assistant shows without asking the service
// ABOUTME: Also formats the per-category question listing

package conversation

import (
	"fmt"
	"strings"
)

const (
	WelcomeText = "¡Hola! Soy tu asistente académico"
	HelpText    = "Puedo ayudarte con preguntas sobre diversos temas. ¿En qué puedo asistirte hoy?"

	SendErrorText = "Lo siento, tuve un problema procesando tu pregunta. ¿Podrías intentar de nuevo?"

	TopicsLeadInText = "Estos son los temas disponibles:"
	NoTopicsText     = "No hay temas disponibles en este momento."
	TopicsErrorText  = "No se pudieron obtener los temas disponibles."

	HowItWorksText = "Soy un chatbot académico. Puedes preguntarme sobre temas de tecnología, ciencia, " +
		"matemáticas, programación y más. Simplemente escribe tu pregunta y te responderé con la mejor " +
		"información disponible. ¡Prueba preguntando sobre inteligencia artificial, bases de datos, " +
		"o hábitos de estudio!"

	SuggestionsErrorText = "No se pudieron cargar las sugerencias"
)

// QuestionsText lists a category's questions, one bullet per line.
func QuestionsText(category string, questions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Preguntas frecuentes de \"%s\":", category)
	for _, q := range questions {
		b.WriteString("\n• ")
		b.WriteString(q)
	}
	return b.String()
}

func NoQuestionsText(category string) string {
	return fmt.Sprintf("No hay preguntas frecuentes de \"%s\" en este momento.", category)
}

func QuestionsErrorText(category string) string {
	return fmt.Sprintf("No se pudieron obtener las preguntas de \"%s\".", category)
}
