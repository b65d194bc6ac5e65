package config

import (
	"log"
	"strings"
)

func MustNonEmpty(value, envName string) {
	if strings.TrimSpace(value) == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustOneOf(value, envName string, allowed ...string) {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return
		}
	}
	log.Fatalf("env %s=%q must be one of %s", envName, value, strings.Join(allowed, ", "))
}
