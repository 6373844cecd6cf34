//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

// InitializeApp builds the full application graph. The returned cleanup
// closes the library and flushes the logger.
func InitializeApp(opts Options) (*App, func(), error) {
	wire.Build(
		provideDirs,
		provideLogger,
		provideFs,
		provideDatabase,
		provideDAO,
		provideStack,
		providePipeline,
		provideExporter,
		provideLibrary,
		provideSearcher,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
