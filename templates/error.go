package templates

import "net/http"

func errorTitle(status int) string {
	if title := http.StatusText(status); title != "" {
		return title
	}
	return "Error"
}

func errorMessage(message string) string {
	if message == "" {
		return "Something went wrong. Please try again."
	}
	return message
}
