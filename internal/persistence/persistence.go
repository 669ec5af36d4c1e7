package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/markusressel/daq2go/internal/ui"
	bolt "go.etcd.io/bbolt"
	"os"
	"path/filepath"
	"time"
)

const (
	BucketSetpoints = "setpoints"
)

type Persistence interface {
	Init() error

	// LoadSetpoint returns os.ErrNotExist if no setpoint has been saved for the loop
	LoadSetpoint(loopId string) (float64, error)
	SaveSetpoint(loopId string, value float64) error
	DeleteSetpoint(loopId string) error
	LoadSetpoints() (map[string]float64, error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveSetpoint saves the last operator setpoint of the given loop
func (p persistence) SaveSetpoint(loopId string, value float64) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketSetpoints))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(loopId), data)
	})
}

// LoadSetpoint loads the last operator setpoint of the given loop
func (p persistence) LoadSetpoint(loopId string) (float64, error) {
	db, err := p.openPersistence()
	if err != nil {
		return 0, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var value float64
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSetpoints))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(loopId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &value)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved setpoint for %s: %v", loopId, err)
			err := b.Delete([]byte(loopId))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", loopId, err)
			}
			return os.ErrNotExist
		}
		return nil
	})

	return value, err
}

// LoadSetpoints returns all saved setpoints, keyed by loop id
func (p persistence) LoadSetpoints() (map[string]float64, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	result := map[string]float64{}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSetpoints))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var value float64
			if err := json.Unmarshal(v, &value); err != nil {
				ui.Warning("Skipping unreadable setpoint for %s: %v", string(k), err)
				return nil
			}
			result[string(k)] = value
			return nil
		})
	})

	return result, err
}

func (p persistence) DeleteSetpoint(loopId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSetpoints))
		if b == nil {
			// no setpoint bucket yet
			return nil
		}
		v := b.Get([]byte(loopId))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(loopId))
	})
}
