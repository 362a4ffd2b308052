package main

// Reporter blank imports: each import registers a hook type.

import (
	_ "github.com/Strob0t/runhooks/internal/adapter/discord"
	_ "github.com/Strob0t/runhooks/internal/adapter/generic"
	_ "github.com/Strob0t/runhooks/internal/adapter/slack"
)
