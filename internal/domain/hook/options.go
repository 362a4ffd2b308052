package hook

import "strings"

// Option is one selectable value of the settings form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormOptions lists the values the hook settings form offers.
type FormOptions struct {
	HookTypes     []Option `json:"hookTypes"`
	HookEvents    []Option `json:"hookEvents"`
	ResultFilters []Option `json:"resultFilters"`
}

// Label turns an enum value into a display label: "RUN_START" -> "Run Start".
func Label(value string) string {
	words := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool { return r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Options returns the form options in presentation order.
func Options() FormOptions {
	opts := FormOptions{
		HookTypes:     make([]Option, 0, len(AllTypes)),
		HookEvents:    make([]Option, 0, len(AllEvents)),
		ResultFilters: make([]Option, 0, len(AllResultFilters)),
	}
	for _, t := range AllTypes {
		opts.HookTypes = append(opts.HookTypes, Option{Value: string(t), Label: Label(string(t))})
	}
	for _, e := range AllEvents {
		opts.HookEvents = append(opts.HookEvents, Option{Value: string(e), Label: Label(string(e))})
	}
	for _, f := range AllResultFilters {
		opts.ResultFilters = append(opts.ResultFilters, Option{Value: string(f), Label: Label(string(f))})
	}
	return opts
}
