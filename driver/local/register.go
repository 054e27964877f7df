package local

import "github.com/gobeaver/fskit"

func init() {
	fskit.RegisterDriver("local", func(opts ...fskit.Option) (fskit.Filesystem, error) {
		return New(opts...), nil
	})
}
