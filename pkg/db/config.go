package db

// Config selects the dialect and carries the connection pool knobs.
// Type is one of postgres, mysql or sqlite; lifetimes are in seconds.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
