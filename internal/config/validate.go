package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/tanq16/splitdl/internal/utils"
)

// ValidateURL returns the trimmed URL or a *utils.ValidationError.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &utils.ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if !utils.URLPattern.MatchString(trimmed) {
		return "", &utils.ValidationError{Field: "url", Reason: fmt.Sprintf("%q must start with http:// or https://", trimmed)}
	}
	return trimmed, nil
}

// ResolveSaveDir maps an empty dir to the working directory and otherwise
// requires dir to be an existing directory.
func ResolveSaveDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &utils.ValidationError{Field: "save directory", Reason: fmt.Sprintf("cannot determine working directory: %v", err)}
		}
		return wd, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &utils.ValidationError{Field: "save directory", Reason: fmt.Sprintf("%s does not exist", dir)}
		}
		return "", &utils.ValidationError{Field: "save directory", Reason: err.Error()}
	}
	if !info.IsDir() {
		return "", &utils.ValidationError{Field: "save directory", Reason: fmt.Sprintf("%s is not a directory", dir)}
	}
	return dir, nil
}

func ValidateWorkers(n int) error {
	if limit := utils.MaxWorkers(); n < 1 || n > limit {
		return &utils.ValidationError{Field: "workers", Reason: fmt.Sprintf("%d is outside 1..%d", n, limit)}
	}
	return nil
}
