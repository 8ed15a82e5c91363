package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/annel0/voxel-sandbox/internal/auth"
	"github.com/annel0/voxel-sandbox/internal/config"
	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/urfave/cli/v2"
)

// newApp собирает CLI; вывод команд идёт в out
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "voxelctl",
		Usage:  "утилиты для сохранений voxel-sandbox",
		Writer: out,
		Commands: []*cli.Command{
			generateCommand(),
			inspectCommand(),
			copyCommand(),
			slotsCommand(),
			tokenCommand(),
		},
	}
}

// storeFlags флаги выбора хранилища: файл или слот BadgerDB
func storeFlags(prefix, usage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: prefix + "file", Usage: usage + ": файл сохранения"},
		&cli.StringFlag{Name: prefix + "badger", Usage: usage + ": каталог BadgerDB"},
		&cli.StringFlag{Name: prefix + "slot", Value: storage.DefaultSlot, Usage: usage + ": слот BadgerDB"},
	}
}

// openStore открывает хранилище по флагам с префиксом prefix
func openStore(c *cli.Context, prefix string) (storage.SnapshotStore, error) {
	file := c.String(prefix + "file")
	dir := c.String(prefix + "badger")
	switch {
	case file != "" && dir != "":
		return nil, fmt.Errorf("укажите только один из --%sfile и --%sbadger", prefix, prefix)
	case file != "":
		return storage.NewFileStore(file)
	case dir != "":
		return storage.NewBadgerStore(dir, c.String(prefix+"slot"))
	}
	return nil, fmt.Errorf("не задано хранилище: --%sfile или --%sbadger", prefix, prefix)
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "сгенерировать мир по конфигурации и записать сохранение",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML конфигурация", EnvVars: []string{config.EnvConfigPath}},
			&cli.Int64Flag{Name: "seed", Usage: "переопределить seed"},
			&cli.IntFlag{Name: "world-size", Usage: "переопределить размер мира в чанках"},
		}, storeFlags("", "куда писать")...),
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			wc := cfg.WorldConfig()
			if c.IsSet("seed") {
				wc.Seed = c.Int64("seed")
			}
			if c.IsSet("world-size") {
				wc.WorldSize = c.Int("world-size")
			}

			store, err := openStore(c, "")
			if err != nil {
				return err
			}
			saves := storage.NewManager(store)
			defer saves.Close()

			w := world.New(wc, world.WithLogger(logging.Discard()))
			w.GenerateWorld()
			w.SetPlayer(wc.SpawnPosition)

			header, err := saves.Save(c.Context, w)
			if err != nil {
				return err
			}
			s := w.Stats()
			fmt.Fprintf(c.App.Writer, "✅ Сохранение %s: %d чанков, %d блоков, %d деревьев\n",
				header.SaveID, s.Chunks, s.Blocks, s.Trees)
			return nil
		},
	}
}

// saveSummary сводка сохранения для inspect
type saveSummary struct {
	Version   uint8      `json:"version"`
	SaveID    string     `json:"save_id"`
	CreatedAt time.Time  `json:"created_at"`
	Size      int        `json:"size"`
	Chunks    int        `json:"chunks"`
	Blocks    int        `json:"blocks"`
	Trees     int        `json:"trees"`
	Player    [3]float64 `json:"player"`
	Kinds     []int      `json:"kinds"` // число блоков каждого материала по индексу палитры
}

func summarize(snap *storage.Snapshot, size int) saveSummary {
	s := saveSummary{
		Version:   snap.Header.Version,
		SaveID:    snap.Header.SaveID.String(),
		CreatedAt: snap.Header.CreatedAt,
		Size:      size,
		Chunks:    len(snap.State.Chunks),
		Blocks:    snap.State.BlockCount(),
		Trees:     len(snap.State.Trees),
		Player:    [3]float64(snap.State.Player),
	}
	for _, cs := range snap.State.Chunks {
		for _, b := range cs.Blocks {
			for int(b.Kind) >= len(s.Kinds) {
				s.Kinds = append(s.Kinds, 0)
			}
			s.Kinds[b.Kind]++
		}
	}
	return s
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "проверить сохранение и вывести его сводку",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "вывести сводку в JSON"},
		}, storeFlags("", "что читать")...),
		Action: func(c *cli.Context) error {
			store, err := openStore(c, "")
			if err != nil {
				return err
			}
			saves := storage.NewManager(store)
			defer saves.Close()

			snap, size, err := saves.Read(c.Context)
			if err != nil {
				return err
			}
			s := summarize(snap, size)

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Fprintf(c.App.Writer, "Сохранение %s (формат v%d, %d байт)\n", s.SaveID, s.Version, s.Size)
			fmt.Fprintf(c.App.Writer, "  создано: %s\n", s.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(c.App.Writer, "  чанков: %d, блоков: %d, деревьев: %d\n", s.Chunks, s.Blocks, s.Trees)
			fmt.Fprintf(c.App.Writer, "  игрок: %.2f %.2f %.2f\n", s.Player[0], s.Player[1], s.Player[2])
			return nil
		},
	}
}

func copyCommand() *cli.Command {
	flags := append(storeFlags("from-", "источник"), storeFlags("to-", "назначение")...)
	return &cli.Command{
		Name:  "copy",
		Usage: "скопировать сохранение между файлом и слотами BadgerDB",
		Flags: flags,
		Action: func(c *cli.Context) error {
			src, err := openStore(c, "from-")
			if err != nil {
				return err
			}
			defer src.Close()

			data, err := src.ReadSnapshot(c.Context)
			if err != nil {
				return err
			}
			// Повреждённые данные не копируем
			snap, err := storage.Decode(bytes.NewReader(data))
			if err != nil {
				return err
			}

			dst, err := openStore(c, "to-")
			if err != nil {
				return err
			}
			defer dst.Close()

			if err := dst.WriteSnapshot(c.Context, data); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "✅ Скопировано сохранение %s (%d байт)\n", snap.Header.SaveID, len(data))
			return nil
		},
	}
}

func slotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "список слотов BadgerDB",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "badger", Usage: "каталог BadgerDB", Required: true},
			&cli.StringFlag{Name: "delete", Usage: "удалить слот"},
		},
		Action: func(c *cli.Context) error {
			bs, err := storage.NewBadgerStore(c.String("badger"), storage.DefaultSlot)
			if err != nil {
				return err
			}
			defer bs.Close()

			if slot := c.String("delete"); slot != "" {
				if err := bs.DeleteSlot(slot); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "🗑 Слот %s удалён\n", slot)
			}

			slots, err := bs.Slots()
			if err != nil {
				return err
			}
			for _, slot := range slots {
				fmt.Fprintln(c.App.Writer, slot)
			}
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "выпустить JWT для админ-API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "секрет в base64", EnvVars: []string{config.EnvAdminToken}},
			&cli.StringFlag{Name: "subject", Value: "admin", Usage: "subject токена"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "срок действия"},
			&cli.BoolFlag{Name: "viewer", Usage: "токен без прав администратора"},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "secret",
				Usage: "сгенерировать новый секрет",
				Action: func(c *cli.Context) error {
					secret, err := auth.GenerateSecureSecret()
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, secret)
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			secret := c.String("secret")
			if secret == "" {
				return errors.New("не задан --secret или " + config.EnvAdminToken)
			}
			issuer, err := auth.NewTokenIssuer(secret)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(c.String("subject"), !c.Bool("viewer"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
