package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func call(c *cli.Context) error {
	// Args
	if c.Args().Len() != 1 {
		return errors.New(
			"call requires one argument-- the name of the function to invoke",
		)
	}
	functionName := c.Args().Get(0)

	// Command-specific flags
	output := c.String(flagOutput)
	paramsJSON := c.String(flagParams)

	if err := validateOutputFormat(output); err != nil {
		return err
	}
	if strings.ToLower(output) == "table" {
		// Function results are free-form documents; there is no sensible
		// tabular rendering.
		output = "json"
	}

	var params map[string]interface{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
			return errors.Wrap(err, "error parsing function parameters")
		}
	}

	authority, err := restoreAuthority(c)
	if err != nil {
		return err
	}

	// The advisory gate mirrors what the application uses to hide controls.
	// A denial here is only a warning; the proxy enforces the real rules.
	if !authority.CheckFunctionPermission(functionName) {
		fmt.Printf(
			"Warning: role %q is not expected to be permitted to invoke %q.\n",
			authority.UserRole(),
			functionName,
		)
	}

	result, err := authority.CallFunction(c.Context, functionName, params)
	if err != nil {
		return err
	}

	switch strings.ToLower(output) {
	case "yaml":
		yamlBytes, err := yaml.Marshal(result)
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from call operation",
			)
		}
		fmt.Println(string(yamlBytes))

	case "json":
		prettyJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from call operation",
			)
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}
