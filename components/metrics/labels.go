package metrics

import (
	"strconv"
)

const (
	labelKeyMethod = "method"
	labelKeyRoute  = "route"
	labelKeyStatus = "status"
	labelKeyTopic  = "topic"
	labelSuccess   = "success"

	labelValueNoRoute = "<no route>"
)

var (
	httpLabelKeys = []string{
		labelKeyMethod,
		labelKeyRoute,
		labelKeyStatus,
	}

	publisherLabelKeys = []string{
		labelKeyTopic,
		labelSuccess,
	}
)

func successLabel(err error) string {
	return strconv.FormatBool(err == nil)
}

func statusLabel(status int) string {
	// handlers that never call WriteHeader answer 200
	if status == 0 {
		status = 200
	}
	return strconv.Itoa(status)
}
