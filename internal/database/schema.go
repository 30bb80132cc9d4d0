package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the ordered DDL applied by Migrate.  Every statement is
// idempotent so running it against an existing database is harmless.
// Column names keep the legacy mix of camelCase foreign keys and snake_case
// attributes because existing data and tooling depend on them.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id INT AUTO_INCREMENT PRIMARY KEY,
  phone VARCHAR(20) NOT NULL UNIQUE,
  name VARCHAR(60),
  email VARCHAR(120),
  role ENUM('user','worker','admin') NOT NULL DEFAULT 'user',
  password_hash VARCHAR(255) NOT NULL,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  INDEX idx_users_role (role)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS workshops (
  id INT AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(120) NOT NULL,
  address VARCHAR(255) NOT NULL,
  lat DOUBLE NOT NULL,
  lng DOUBLE NOT NULL,
  rating DECIMAL(2,1) NOT NULL DEFAULT 4.2,
  reviews INT NOT NULL DEFAULT 0,
  isOpen TINYINT(1) NOT NULL DEFAULT 1,
  openTime VARCHAR(5) NOT NULL DEFAULT '09:00',
  closeTime VARCHAR(5) NOT NULL DEFAULT '21:00',
  services TEXT NOT NULL,
  image_url VARCHAR(255),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  INDEX idx_workshops_isopen (isOpen)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS service_requests (
  id INT AUTO_INCREMENT PRIMARY KEY,
  userId INT NOT NULL,
  workshopId INT NULL,
  assignedWorkerId INT NULL,
  service VARCHAR(100) NOT NULL,
  status VARCHAR(20) NOT NULL DEFAULT 'pending',
  vehicle_make VARCHAR(50),
  vehicle_model VARCHAR(50),
  vehicle_year VARCHAR(10),
  registration_number VARCHAR(30),
  location_address VARCHAR(255),
  lat DOUBLE,
  lng DOUBLE,
  notes TEXT,
  urgency VARCHAR(20) DEFAULT 'normal',
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  CONSTRAINT fk_sr_user FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE,
  CONSTRAINT fk_sr_workshop FOREIGN KEY (workshopId) REFERENCES workshops(id) ON DELETE SET NULL,
  CONSTRAINT fk_sr_worker FOREIGN KEY (assignedWorkerId) REFERENCES users(id) ON DELETE SET NULL,
  INDEX idx_sr_status (status),
  INDEX idx_sr_user (userId),
  INDEX idx_sr_workshop (workshopId)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS worker_assignments (
  id INT AUTO_INCREMENT PRIMARY KEY,
  userId INT NOT NULL,
  workshopId INT NOT NULL,
  is_primary TINYINT(1) NOT NULL DEFAULT 0,
  active TINYINT(1) NOT NULL DEFAULT 1,
  assigned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  ended_at TIMESTAMP NULL DEFAULT NULL,
  CONSTRAINT fk_wa_user FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE,
  CONSTRAINT fk_wa_workshop FOREIGN KEY (workshopId) REFERENCES workshops(id) ON DELETE CASCADE,
  INDEX idx_wa_user (userId),
  INDEX idx_wa_workshop (workshopId),
  INDEX idx_wa_active (active)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS reviews (
  id INT AUTO_INCREMENT PRIMARY KEY,
  requestId INT NOT NULL,
  workshopId INT NOT NULL,
  userId INT NOT NULL,
  rating TINYINT UNSIGNED NOT NULL,
  comment TEXT,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  CONSTRAINT fk_rev_request FOREIGN KEY (requestId) REFERENCES service_requests(id) ON DELETE CASCADE,
  CONSTRAINT fk_rev_workshop FOREIGN KEY (workshopId) REFERENCES workshops(id) ON DELETE CASCADE,
  CONSTRAINT fk_rev_user FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE,
  UNIQUE KEY uniq_review_user_request (requestId, userId),
  INDEX idx_rev_workshop (workshopId)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS notifications (
  id INT AUTO_INCREMENT PRIMARY KEY,
  userId INT NOT NULL,
  title VARCHAR(150) NOT NULL,
  body TEXT,
  is_read TINYINT(1) NOT NULL DEFAULT 0,
  read_at TIMESTAMP NULL DEFAULT NULL,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  CONSTRAINT fk_notif_user FOREIGN KEY (userId) REFERENCES users(id) ON DELETE CASCADE,
  INDEX idx_notif_user_read (userId, is_read)
) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS request_status_history (
  id INT AUTO_INCREMENT PRIMARY KEY,
  requestId INT NOT NULL,
  from_status VARCHAR(20),
  to_status VARCHAR(20) NOT NULL,
  changedByUserId INT NULL,
  notes TEXT,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  CONSTRAINT fk_rsh_request FOREIGN KEY (requestId) REFERENCES service_requests(id) ON DELETE CASCADE,
  CONSTRAINT fk_rsh_user FOREIGN KEY (changedByUserId) REFERENCES users(id) ON DELETE SET NULL,
  INDEX idx_rsh_request (requestId)
) ENGINE=InnoDB`,
}

// Migrate applies Schema in order, stopping at the first failure.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
