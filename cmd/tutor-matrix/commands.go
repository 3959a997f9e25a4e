// ABOUTME: Room command parsing for tutor-matrix
// ABOUTME: Prefixed words pick an action; every other message is a question

package main

import (
	"strconv"
	"strings"
)

type roomCommandKind int

const (
	roomAsk roomCommandKind = iota
	roomTopics
	roomTopic
	roomHowItWorks
	roomReset
)

type roomCommand struct {
	kind  roomCommandKind
	text  string
	index int
}

// parseRoomCommand reads one room message. ok is false for blank messages.
// A malformed command falls back to being asked as a question.
func parseRoomCommand(body, prefix string) (cmd roomCommand, ok bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return roomCommand{}, false
	}
	ask := roomCommand{kind: roomAsk, text: body}
	if prefix == "" || !strings.HasPrefix(body, prefix) {
		return ask, true
	}

	fields := strings.Fields(strings.TrimPrefix(body, prefix))
	if len(fields) == 0 {
		return ask, true
	}

	switch strings.ToLower(fields[0]) {
	case "temas":
		return roomCommand{kind: roomTopics}, true
	case "como", "cómo":
		return roomCommand{kind: roomHowItWorks}, true
	case "limpiar":
		return roomCommand{kind: roomReset}, true
	case "tema":
		if len(fields) < 2 {
			return ask, true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return ask, true
		}
		return roomCommand{kind: roomTopic, index: n}, true
	default:
		return ask, true
	}
}
