// ABOUTME: Parses the slash commands typed into the tutor terminal client
// ABOUTME: Anything that is not a command is a question for the assistant

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdAsk commandKind = iota
	cmdTopics
	cmdHowItWorks
	cmdQuick
	cmdTopic
	cmdSuggestions
	cmdAskSuggestion
	cmdRate
	cmdClear
	cmdHelp
	cmdQuit
)

// command is one parsed line of input.
type command struct {
	kind    commandKind
	text    string
	quickID string
	index   int
	rating  int
	comment string
}

var errEmptyInput = errors.New("empty input")

const helpText = `Comandos:
  /temas                          temas disponibles
  /tema <n>                       preguntas frecuentes del tema n
  /como                           ¿cómo funciona?
  /mate                           ayuda con matemáticas
  /sugerencias                    cargar preguntas sugeridas
  /sugerencia <n>                 preguntar la sugerencia n
  /valorar <n> <1-5> [comentario] valorar la respuesta n
  /limpiar                        empezar de nuevo
  /salir                          salir`

func parseCommand(input string) (command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return command{}, errEmptyInput
	}
	if !strings.HasPrefix(input, "/") {
		return command{kind: cmdAsk, text: input}, nil
	}

	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/temas":
		return command{kind: cmdTopics}, nil
	case "/como":
		return command{kind: cmdHowItWorks}, nil
	case "/mate":
		return command{kind: cmdQuick, quickID: "math"}, nil
	case "/tema":
		n, err := indexArg(name, args)
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdTopic, index: n}, nil
	case "/sugerencias":
		return command{kind: cmdSuggestions}, nil
	case "/sugerencia":
		n, err := indexArg(name, args)
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdAskSuggestion, index: n}, nil
	case "/valorar":
		if len(args) < 2 {
			return command{}, fmt.Errorf("uso: /valorar <n> <1-5> [comentario]")
		}
		n, err := indexArg(name, args[:1])
		if err != nil {
			return command{}, err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil || rating < 1 || rating > 5 {
			return command{}, fmt.Errorf("la valoración debe ser un número del 1 al 5")
		}
		comment := ""
		if len(args) > 2 {
			comment = strings.Join(args[2:], " ")
		}
		return command{kind: cmdRate, index: n, rating: rating, comment: comment}, nil
	case "/limpiar":
		return command{kind: cmdClear}, nil
	case "/ayuda", "/help":
		return command{kind: cmdHelp}, nil
	case "/salir", "/quit", "/exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("comando desconocido: %s (prueba /ayuda)", name)
	}
}

func indexArg(name string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("uso: %s <n>", name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s espera un número positivo, no %q", name, args[0])
	}
	return n, nil
}
