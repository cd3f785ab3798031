package utils

import (
	"strings"
)

func StrPositive(value string) bool {
	value = strings.ToLower(value)
	return value == "1" || value == "on" || value == "true" || value == "yes"
}

func StrNegative(value string) bool {
	value = strings.ToLower(value)

	return value == "" || value == "0" || value == "off" || value == "false" || value == "no"
}
