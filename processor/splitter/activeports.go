package splitter

import (
	"strings"
)

// ParseActivePorts converts an activeports value into zero-based output
// indices for n outputs.
//
// "all" (exact, case-sensitive) selects every output. Otherwise the value is
// split on commas and the first decimal digit of each token is taken as a
// one-based port number. Only that single digit is read, so "10" selects
// port 0. Tokens without a digit and numbers outside [1,n] are dropped. Each
// port appears once, in order of first mention.
func ParseActivePorts(cfg string, n int) []int {
	if cfg == AllPorts {
		ports := make([]int, n)
		for i := range ports {
			ports[i] = i
		}
		return ports
	}

	ports := []int{}
	seen := make(map[int]bool)
	for _, token := range strings.Split(cfg, ",") {
		pos := strings.IndexAny(token, "0123456789")
		if pos < 0 {
			continue
		}
		id := int(token[pos]-'0') - 1
		if id < 0 || id >= n || seen[id] {
			continue
		}
		seen[id] = true
		ports = append(ports, id)
	}
	return ports
}
