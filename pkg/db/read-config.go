package db

import (
	"fmt"
)

// DBConfigFromYamlObj builds the connection settings from a config file section. Secrets
// are expected to be replaced from the environment before this is called.
func DBConfigFromYamlObj(yamlObj DBConfigYaml) DBConfig {
	return DBConfig{
		URI:              BuildConnectionURI(yamlObj.ConnectionPrefix, yamlObj.Username, yamlObj.Password, yamlObj.ConnectionStr),
		Timeout:          yamlObj.Timeout,
		IdleConnTimeout:  yamlObj.IdleConnTimeout,
		MaxPoolSize:      uint64(yamlObj.MaxPoolSize),
		NoCursorTimeout:  yamlObj.UseNoCursorTimeout,
		DBNamePrefix:     yamlObj.DBNamePrefix,
		RunIndexCreation: yamlObj.RunIndexCreation,
	}
}

func BuildConnectionURI(prefix string, username string, password string, connStr string) string {
	if username == "" && password == "" {
		return fmt.Sprintf(`mongodb%s://%s`, prefix, connStr)
	}
	return fmt.Sprintf(`mongodb%s://%s:%s@%s`, prefix, username, password, connStr)
}
