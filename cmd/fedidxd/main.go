package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"fedindex/internal/fedidxd"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:7347", "listen address (tcp)")
	flag.Parse()

	s := fedidxd.NewServer(fedidxd.Options{Listen: *listen})
	if err := s.Run(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			_, _ = fmt.Fprintf(os.Stderr, "listen address in use: %s\nTry: -listen 127.0.0.1:7348\n", *listen)
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
