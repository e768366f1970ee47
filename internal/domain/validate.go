package domain

import "strings"

// Characters that may not appear in file or folder names.
const invalidNameChars = `<>:"/\|?*`

const (
	maxFolderNameLen = 100
	maxFileNameLen   = 255
)

func validateName(name string, maxLen int, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError("%s name must not be empty", what)
	}
	if len(name) > maxLen {
		return "", ValidationError("%s name must not exceed %d characters", what, maxLen)
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return "", ValidationError("%s name contains invalid characters: %s", what, invalidNameChars)
	}
	return name, nil
}

// ValidateFolderName trims and checks a folder name, returning the cleaned
// name or a validation error.
func ValidateFolderName(name string) (string, error) {
	return validateName(name, maxFolderNameLen, "folder")
}

// ValidateFileName trims and checks a file name.
func ValidateFileName(name string) (string, error) {
	return validateName(name, maxFileNameLen, "file")
}
