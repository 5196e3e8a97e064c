package auth

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Permissions maps role -> []permission
type Permissions map[string][]string

type permissionsFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadPermissions loads a permissions.yml file and returns a role->permissions map.
func LoadPermissions(path string) (Permissions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePermissions(b)
}

// ParsePermissions decodes permissions YAML. Role names are lower-cased.
func ParsePermissions(b []byte) (Permissions, error) {
	var pf permissionsFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, err
	}
	perms := make(Permissions, len(pf.Roles))
	for role, list := range pf.Roles {
		perms[strings.ToLower(role)] = list
	}
	return perms, nil
}
