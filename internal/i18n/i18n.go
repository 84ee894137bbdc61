package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

// supported lists the languages we ship auth error strings for. The first
// entry is the fallback.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.Polish,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		"bad-credentials": "Invalid email or password",
		"locked":          "Account is locked, contact an administrator",
		"soft-locked":     "Too many failed attempts, try again later",
		"session-error":   "Authentication is temporarily unavailable",
		"session-expired": "Session expired",
	},
	language.Spanish: {
		"bad-credentials": "Correo o contraseña incorrectos",
		"locked":          "La cuenta está bloqueada, contacte a un administrador",
		"soft-locked":     "Demasiados intentos fallidos, inténtelo más tarde",
		"session-error":   "La autenticación no está disponible temporalmente",
		"session-expired": "La sesión ha expirado",
	},
	language.Polish: {
		"bad-credentials": "Nieprawidłowy e-mail lub hasło",
		"locked":          "Konto jest zablokowane, skontaktuj się z administratorem",
		"soft-locked":     "Zbyt wiele nieudanych prób, spróbuj później",
		"session-error":   "Uwierzytelnianie jest chwilowo niedostępne",
		"session-expired": "Sesja wygasła",
	},
}

// Pick resolves the response language from the Accept-Language header.
func Pick(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}

// T returns the user-facing string for key in the request's language,
// falling back to English, then to the key itself.
func T(r *http.Request, key string) string {
	tag := Pick(r)
	if msg, ok := messages[tag][key]; ok {
		return msg
	}
	if msg, ok := messages[language.English][key]; ok {
		return msg
	}
	return key
}
