// Package hydrate loads a SQLite snapshot of the accounting store's
// entities and replays it through the normal store insertion API before
// the connector starts accepting clients. Initial hydration is treated
// as an I/O concern external to the store's specified steady-state
// behavior: this package never reaches into store internals, only the
// exported Store methods every other caller uses.
package hydrate

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/domain"
	"github.com/poolcore/ckdb/pkg/logging"
)

var log = logging.GetDefault().Component("hydrate")

// FromFile opens the SQLite database at path and replays every row it
// finds into stores. An empty path is not an error: the store simply
// starts empty, since this core owns no persisted state of its own.
func FromFile(path string, stores *domain.Stores) error {
	if path == "" {
		log.Debug("no hydration database configured, starting empty")
		return nil
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("hydrate: open %s: %w", path, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("hydrate: connect %s: %w", path, err)
	}

	loaders := []struct {
		name string
		fn   func(*sql.DB, *domain.Stores) (int, error)
	}{
		{"users", hydrateUsers},
		{"workers", hydrateWorkers},
		{"paymentaddresses", hydratePaymentAddresses},
		{"optioncontrol", hydrateOptionControl},
		{"workinfo", hydrateWorkInfo},
		{"blocks", hydrateBlocks},
	}

	for _, l := range loaders {
		n, err := l.fn(db, stores)
		if err != nil {
			return fmt.Errorf("hydrate: %s: %w", l.name, err)
		}
		log.Info("hydrated rows", "table", l.name, "rows", n)
	}
	return nil
}

func hydrateUsers(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT username, salt, passwordhash, email FROM users WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var username, salt, hash, email string
		if err := rows.Scan(&username, &salt, &hash, &email); err != nil {
			return n, err
		}
		stores.Users.Create(username, salt, hash, email)
		n++
	}
	return n, rows.Err()
}

func hydrateWorkers(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT userid, workername, difficulty, idlenotificationmins FROM workers WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var userid, difficulty, idleMins int64
		var workername string
		if err := rows.Scan(&userid, &workername, &difficulty, &idleMins); err != nil {
			return n, err
		}
		stores.Workers.Supersede(userid, workername, func(w *domain.Worker) {
			w.Difficulty = difficulty
			w.IdleNotificationMins = idleMins
		})
		n++
	}
	return n, rows.Err()
}

func hydratePaymentAddresses(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT userid, payaddress FROM paymentaddresses WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var userid int64
		var payaddress string
		if err := rows.Scan(&userid, &payaddress); err != nil {
			return n, err
		}
		if _, err := stores.PaymentAddresses.Add(userid, payaddress); err != nil {
			log.Warn("skipping invalid payment address", "userid", userid, "error", err)
			continue
		}
		n++
	}
	return n, rows.Err()
}

func hydrateOptionControl(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT name, value, activationheight FROM optioncontrol WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var name, value string
		var activationHeight int64
		if err := rows.Scan(&name, &value, &activationHeight); err != nil {
			return n, err
		}
		stores.OptionControl.Set(name, value, activeNow(), activationHeight)
		n++
	}
	return n, rows.Err()
}

func hydrateWorkInfo(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT workinfoid, coinbase1hex FROM workinfo WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var workinfoid int64
		var coinbase1hex string
		if err := rows.Scan(&workinfoid, &coinbase1hex); err != nil {
			return n, err
		}
		stores.WorkInfo.Add(workinfoid, coinbase1hex)
		n++
	}
	return n, rows.Err()
}

func hydrateBlocks(db *sql.DB, stores *domain.Stores) (int, error) {
	rows, err := db.Query(`SELECT height, blockhash, confirms FROM blocks WHERE expirydate IS NULL OR expirydate = ''`)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var height, confirms int64
		var blockhash string
		if err := rows.Scan(&height, &blockhash, &confirms); err != nil {
			return n, err
		}
		b, err := stores.Blocks.Add(height, blockhash)
		if err != nil {
			log.Warn("skipping invalid block hash", "height", height, "error", err)
			continue
		}
		if confirms > 0 {
			stores.Blocks.AddConfirm(b, confirms)
		}
		n++
	}
	return n, rows.Err()
}

// activeNow returns an activation timestamp that is already in effect,
// so a hydrated OPTIONCONTROL row is immediately eligible.
func activeNow() codec.Timestamp {
	t := time.Now().UTC()
	return codec.Timestamp{Sec: t.Unix(), USec: int64(t.Nanosecond() / 1000)}
}

func isMissingTable(err error) bool {
	return err != nil && sqliteNoSuchTable(err.Error())
}

func sqliteNoSuchTable(msg string) bool {
	const needle = "no such table"
	for i := 0; i+len(needle) <= len(msg); i++ {
		if msg[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
