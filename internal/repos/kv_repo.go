package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type KVRepo struct{ DB *sqlx.DB }

func NewKVRepo(db *sqlx.DB) *KVRepo { return &KVRepo{DB: db} }

// ForSession scopes storage to one sid.
func (r *KVRepo) ForSession(sid string) Storage {
	return &sessionStorage{db: r.DB, sid: sid}
}

func (r *KVRepo) TouchSession(sid string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,last_seen) VALUES(?,CURRENT_TIMESTAMP)
                         ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`, sid)
	return err
}

// keys lists the storage keys held for sid.
func (r *KVRepo) keys(sid string) ([]string, error) {
	var keys []string
	err := r.DB.Select(&keys, `SELECT key FROM kv_store WHERE session_id=? ORDER BY key`, sid)
	return keys, err
}

type sessionStorage struct {
	db  *sqlx.DB
	sid string
}

func (s *sessionStorage) Get(key string) ([]byte, bool, error) {
	var v string
	err := s.db.Get(&v, `SELECT value FROM kv_store WHERE session_id=? AND key=?`, s.sid, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (s *sessionStorage) Put(key string, value []byte) error {
	return s.PutMany([]Entry{{Key: key, Value: value}})
}

func (s *sessionStorage) PutMany(entries []Entry) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO sessions(id,last_seen) VALUES(?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`, s.sid); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.Exec(`INSERT INTO kv_store(session_id,key,value,updated_at)
                              VALUES(?,?,?,CURRENT_TIMESTAMP)
                              ON CONFLICT(session_id,key) DO UPDATE SET value=excluded.value,updated_at=CURRENT_TIMESTAMP`,
			s.sid, e.Key, string(e.Value)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sessionStorage) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv_store WHERE session_id=? AND key=?`, s.sid, key)
	return err
}
