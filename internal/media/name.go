package media

import (
	"regexp"
	"strconv"
	"strings"

	"edlmatch/internal/tokens"
)

// counterRE requires a dot before the counter and allows trailing text
// after it, as in "plate.1001.exr" or "plate.1001.denoise".
var counterRE = regexp.MustCompile(`^(?P<clean>.+)(?P<sep>\.)(?P<counter>[0-9]+)(?P<after>.*)$`)

var driveRE = regexp.MustCompile(`^([A-Za-z]:)`)

// ParseName splits path into name tokens. Backslashes are treated as
// separators so Windows paths from CSV exports parse the same way.
func ParseName(path string) tokens.Map {
	full := strings.ReplaceAll(path, `\`, "/")
	out := tokens.Map{
		"full_path":           full,
		"drive":               "",
		"unc_host":            "",
		"path":                "",
		"name":                "",
		"extension":           "",
		"clean_name":          "",
		"number_string":       "",
		"number":              "0",
		"padding":             "0",
		"clean_name_no_sep":   "",
		"clean_name_sep_char": "",
		"pattern_hash_only":   "",
		"after_number":        "",
		"parent":              "",
	}

	if m := driveRE.FindString(full); m != "" {
		out["drive"] = m
	} else if strings.HasPrefix(full, "//") {
		host, _, _ := strings.Cut(full[2:], "/")
		out["unc_host"] = "//" + host
	}

	dir, base := "", full
	if i := strings.LastIndex(full, "/"); i >= 0 {
		dir, base = full[:i], full[i+1:]
		if dir == "" {
			dir = "/"
		}
	}
	out["path"] = dir
	if parentDir := strings.TrimSuffix(dir, "/"); parentDir != "" {
		out["parent"] = parentDir[strings.LastIndex(parentDir, "/")+1:]
	}

	name, ext := splitExt(base)
	out["name"] = name
	out["extension"] = ext

	if m := counterRE.FindStringSubmatch(name); m != nil {
		clean, sep, counter, after := m[1], m[2], m[3], m[4]
		out["number_string"] = counter
		out["pattern_hash_only"] = strings.Repeat("#", len(counter))
		out["padding"] = strconv.Itoa(len(counter))
		if n, err := strconv.ParseUint(counter, 10, 64); err == nil {
			out["number"] = strconv.FormatUint(n, 10)
		}
		out["clean_name"] = clean + sep
		out["clean_name_no_sep"] = clean
		out["clean_name_sep_char"] = sep
		out["after_number"] = after
	} else {
		out["clean_name"] = name
		out["clean_name_no_sep"] = name
	}
	return out
}

// splitExt splits base into name and extension (without the dot). Leading
// dots belong to the name, so ".hidden" has no extension.
func splitExt(base string) (string, string) {
	trimmed := strings.TrimLeft(base, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return base, ""
	}
	i += len(base) - len(trimmed)
	return base[:i], base[i+1:]
}
