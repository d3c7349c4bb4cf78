// Package flagx picks a subset of flags out of a shared argument list, so
// several components can parse their own flags from os.Args.
package flagx

import (
	"flag"
	"io"
	"strings"
)

func flagName(arg string) string {
	name := strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	return name
}

// FilterArgs keeps the arguments that belong to allowedFlags, with their
// values. Names match regardless of a single or double dash, and both
// "-f value" and "-f=value" are recognized. A value is only taken from the
// next argument when it does not start with a dash. Filtering stops at "--".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[flagName(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		if _, ok := allowed[flagName(arg)]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// Value returns the last string value given to any of names in args, or ""
// when none is present.
func Value(args []string, names ...string) string {
	var v string

	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&v, flagName(n), "", "")
	}
	_ = fs.Parse(FilterArgs(args, names))
	return v
}

// ConfigFileFlag returns the config file path given by -c or -config. The
// extension decides whether it is read as JSON, TOML or YAML.
func ConfigFileFlag(args []string) string {
	return Value(args, "-c", "-config")
}
