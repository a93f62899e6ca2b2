package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

func seedRoomTestProperty(t *testing.T, db *gorm.DB) *models.Property {
	property := &models.Property{
		Name:    "湖畔小筑",
		City:    "杭州",
		Address: "西湖区某路1号",
		Status:  models.PropertyStatusActive,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func TestRoomRepository_Create(t *testing.T) {
	db := setupPropertyTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()
	property := seedRoomTestProperty(t, db)

	room := &models.Room{
		PropertyID: property.ID,
		RoomNo:     "101",
		Name:       "湖景大床房",
		Type:       "standard",
		MaxGuests:  2,
		BasePrice:  500,
		Status:     models.RoomStatusActive,
	}
	err := repo.Create(ctx, room)
	require.NoError(t, err)
	assert.NotZero(t, room.ID)
}

func TestRoomRepository_GetByIDWithProperty(t *testing.T) {
	db := setupPropertyTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()
	property := seedRoomTestProperty(t, db)

	room := &models.Room{
		PropertyID: property.ID,
		RoomNo:     "101",
		Name:       "湖景大床房",
		Type:       "standard",
		MaxGuests:  2,
		BasePrice:  500,
		Status:     models.RoomStatusActive,
	}
	require.NoError(t, repo.Create(ctx, room))

	found, err := repo.GetByIDWithProperty(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Property)
	assert.Equal(t, "湖畔小筑", found.Property.Name)
}

func TestRoomRepository_ListByProperty(t *testing.T) {
	db := setupPropertyTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()
	property := seedRoomTestProperty(t, db)

	require.NoError(t, repo.Create(ctx, &models.Room{PropertyID: property.ID, RoomNo: "102", Name: "山景双床房", Type: "standard", MaxGuests: 3, BasePrice: 600, Status: models.RoomStatusActive}))
	require.NoError(t, repo.Create(ctx, &models.Room{PropertyID: property.ID, RoomNo: "101", Name: "湖景大床房", Type: "standard", MaxGuests: 2, BasePrice: 500, Status: models.RoomStatusActive}))

	rooms, total, err := repo.ListByProperty(ctx, property.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// 按房号排序
	assert.Equal(t, "101", rooms[0].RoomNo)
	assert.Equal(t, "102", rooms[1].RoomNo)
}

func TestRoomRepository_ExistsInProperty(t *testing.T) {
	db := setupPropertyTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()
	property := seedRoomTestProperty(t, db)

	room := &models.Room{PropertyID: property.ID, RoomNo: "101", Name: "湖景大床房", Type: "standard", MaxGuests: 2, BasePrice: 500, Status: models.RoomStatusActive}
	require.NoError(t, repo.Create(ctx, room))

	exists, err := repo.ExistsInProperty(ctx, room.ID, property.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsInProperty(ctx, room.ID, property.ID+1)
	require.NoError(t, err)
	assert.False(t, exists)
}
