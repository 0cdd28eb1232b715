package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// shorthandAliases are single-letter switches that stand for a registered
// shorthand without being flags of their own.
var shorthandAliases = map[byte]byte{
	'R': 'r',
}

// ExpandAliases returns args with alias shorthands replaced by the shorthand
// they stand for. Flag values and everything after "--" are left as is.
func ExpandAliases(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, len(args))
	copy(out, args)

	for i := 0; i < len(out); i++ {
		arg := out[i]
		switch {
		case arg == "--":
			return out
		case strings.HasPrefix(arg, "--"):
			name, _, inline := strings.Cut(arg[2:], "=")
			if f := fs.Lookup(name); f != nil && f.NoOptDefVal == "" && !inline {
				i++
			}
		case len(arg) > 1 && arg[0] == '-':
			cluster, at := []byte(arg), i
			for j := 1; j < len(cluster); j++ {
				if alias, ok := shorthandAliases[cluster[j]]; ok {
					cluster[j] = alias
					continue
				}
				if j+1 < len(cluster) && cluster[j+1] == '=' {
					break
				}
				f := fs.ShorthandLookup(string(cluster[j : j+1]))
				if f != nil && f.NoOptDefVal == "" {
					// The rest of the cluster or the next argument is its value.
					if j == len(cluster)-1 {
						i++
					}
					break
				}
			}
			out[at] = string(cluster)
		}
	}
	return out
}
