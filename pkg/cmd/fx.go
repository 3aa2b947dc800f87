package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(dev, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(dump, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(genCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(initCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(migrate, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(newCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(status, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(verify, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
