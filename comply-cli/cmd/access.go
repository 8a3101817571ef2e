package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/complyhq/comply"
)

var accessResources = []string{
	"cpd_activities",
	"documents",
	"clients",
	"complaints",
	"users",
	"roles",
	"role_permissions",
}

var accessOperations = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// access renders the advisory capability matrix for a role: every known
// resource crossed with every operation. These are the same checks the
// application consults before rendering privileged controls; the server's own
// RBAC remains authoritative.
func access(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("access requires no arguments")
	}

	// Command-specific flags
	output := c.String(flagOutput)
	roleName := c.String(flagRole)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	var role comply.Role
	if roleName != "" {
		role = comply.Role(roleName)
	} else {
		authority, err := restoreAuthority(c)
		if err != nil {
			return err
		}
		role = authority.UserRole()
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("RESOURCE", "SELECT", "INSERT", "UPDATE", "DELETE")
		for _, resource := range accessResources {
			row := make([]interface{}, 0, len(accessOperations)+1)
			row = append(row, resource)
			for _, operation := range accessOperations {
				row = append(
					row,
					comply.RoleCanAccess(role, resource, operation),
				)
			}
			table.AddRow(row...)
		}
		fmt.Printf("Capabilities for role %q:\n\n", role)
		fmt.Println(table)

	case "yaml", "json":
		matrix := map[string]map[string]bool{}
		for _, resource := range accessResources {
			matrix[resource] = map[string]bool{}
			for _, operation := range accessOperations {
				matrix[resource][operation] =
					comply.RoleCanAccess(role, resource, operation)
			}
		}
		var outBytes []byte
		var err error
		if strings.ToLower(output) == "yaml" {
			outBytes, err = yaml.Marshal(matrix)
		} else {
			outBytes, err = json.MarshalIndent(matrix, "", "  ")
		}
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from access operation",
			)
		}
		fmt.Println(string(outBytes))
	}

	return nil
}
