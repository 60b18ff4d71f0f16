package postgres

import "time"

type competitionTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type competitionInsertModel struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}
