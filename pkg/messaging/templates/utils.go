package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"
)

func ResolveTemplate(tempName string, templateDef string, contentInfos map[string]string) (content string, err error) {
	if strings.TrimSpace(templateDef) == "" {
		return "", errors.New("empty template `" + tempName)
	}
	tmpl, err := template.New(tempName).Option("missingkey=zero").Parse(templateDef)
	if err != nil {
		err = fmt.Errorf("error when parsing template %s: %v", tempName, err)
		return "", err
	}
	var tpl bytes.Buffer

	err = tmpl.Execute(&tpl, contentInfos)
	if err != nil {
		err = fmt.Errorf("error during executing template %s: %v", tempName, err)
		return "", err
	}
	return tpl.String(), nil
}

// LoadTemplateFile reads a template definition and checks that it can be resolved.
func LoadTemplateFile(tempName string, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	templateDef := string(content)
	if err := CheckTemplateParsable(tempName, templateDef); err != nil {
		return "", err
	}
	return templateDef, nil
}

func CheckTemplateParsable(tempName string, templateDef string) error {
	_, err := ResolveTemplate(tempName, templateDef, map[string]string{})
	if err != nil {
		return errors.New("could not resolve template `" + tempName + "` - error: " + err.Error())
	}
	return nil
}
