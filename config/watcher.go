package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the configuration whenever the loaded file changes and
// hands the result to onChange. Unparsable edits go to onError and the
// previous configuration stays in effect. Listener-affecting fields apply
// at the next start; watching only keeps the in-memory view current.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	var mu sync.Mutex

	l.viper.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		cfg := &Config{}
		if err := l.viper.Unmarshal(cfg); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.viper.WatchConfig()
}
