package memory

import "github.com/gobeaver/fskit"

func init() {
	fskit.RegisterDriver("memory", func(opts ...fskit.Option) (fskit.Filesystem, error) {
		return New(opts...), nil
	})
}
