package command

var registry = map[string]Command{}

// Register adds a command, wrapping it with the given middlewares
// outermost-first. Called from package init().
func Register(cmd Command, mws ...Middleware) {
	for i := len(mws) - 1; i >= 0; i-- {
		cmd = mws[i](cmd)
	}
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

func All() []Command {
	list := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		list = append(list, cmd)
	}
	return list
}
