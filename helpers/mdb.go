package helpers

import (
	"crypto/tls"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"

	"github.com/pkg/errors"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/models"
)

var (
	mDbSession  *mgo.Session
	mDbDatabase string
)

// ConnectMDB connects to mongodb and stores the session
func ConnectMDB(url string, database string) {
	var err error

	log := cache.GetLogger()
	log.WithField("module", "mdb").Info("Connecting to " + url)

	mgo.SetDebug(false)

	newUrl := strings.TrimSuffix(url, "?ssl=true")
	newUrl = strings.Replace(newUrl, "ssl=true&", "", -1)

	dialInfo, err := mgo.ParseURL(newUrl)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	// setup TLS if we use SSL
	if newUrl != url {
		tlsConfig := &tls.Config{}
		tlsConfig.InsecureSkipVerify = true

		dialInfo.DialServer = func(addr *mgo.ServerAddr) (net.Conn, error) {
			conn, err := tls.Dial("tcp", addr.String(), tlsConfig)
			return conn, err
		}
	}

	mDbSession, err = mgo.DialWithInfo(dialInfo)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	mDbSession.SetMode(mgo.Primary, false)
	mDbSession.SetSafe(&mgo.Safe{})

	mDbDatabase = database

	log.WithField("module", "mdb").Info("Connected!")
}

// GetMDb is a simple getter for the mongodb database.
func GetMDb() *mgo.Database {
	return mDbSession.DB(mDbDatabase)
}

// GetMDbSession is a simple getter for the mongodb session.
func GetMDbSession() *mgo.Session {
	return mDbSession
}

func MDbInsert(collection models.MongoDbCollection, data interface{}) (rid bson.ObjectId, err error) {
	var recordData reflect.Value
	if reflect.ValueOf(data).Kind() != reflect.Ptr {
		// handle non pointers
		recordData = reflect.New(reflect.TypeOf(data)).Elem()
		recordData.Set(reflect.ValueOf(data))
	} else {
		// convert the raw interface data to its actual type
		recordData = reflect.ValueOf(data).Elem()
	}

	// confirm data has an ID field
	idField := recordData.FieldByName("ID")
	if !idField.IsValid() {
		return bson.ObjectId(""), errors.New("invalid data")
	}

	// if the records id field is empty, give it an id
	newID := idField.String()
	if newID == "" {
		newID = string(bson.NewObjectId())
		idField.SetString(newID)
	}

	err = GetMDb().C(collection.String()).Insert(recordData.Interface())
	if err != nil {
		return bson.ObjectId(""), err
	}

	return bson.ObjectId(newID), nil
}

func MDbUpdate(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).UpdateId(id, data)
}

func MDbUpdateQuery(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	return GetMDb().C(collection.String()).Update(selector, data)
}

func MDbUpsertID(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	_, err = GetMDb().C(collection.String()).UpsertId(id, data)

	return err
}

func MDbUpsert(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	_, err = GetMDb().C(collection.String()).Upsert(selector, data)

	return err
}

func MDbDelete(collection models.MongoDbCollection, id bson.ObjectId) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).RemoveId(id)
}

func MdbDeleteQuery(collection models.MongoDbCollection, selector interface{}) (err error) {
	return GetMDb().C(collection.String()).Remove(selector)
}

func MdbDeleteQueryAll(collection models.MongoDbCollection, selector interface{}) (removed int, err error) {
	info, err := GetMDb().C(collection.String()).RemoveAll(selector)
	if err != nil {
		return 0, err
	}
	return info.Removed, nil
}

func MdbCollection(collection models.MongoDbCollection) (query *mgo.Collection) {
	return GetMDb().C(collection.String())
}

func MDbIter(query *mgo.Query) (iter *mgo.Iter) {
	return query.Iter()
}

func MdbOne(query *mgo.Query, object interface{}) (err error) {
	return query.One(object)
}

func MdbPipeOne(collection models.MongoDbCollection, pipeline interface{}, object interface{}) (err error) {
	return MdbCollection(collection).Pipe(pipeline).One(object)
}

func MdbCount(collection models.MongoDbCollection, query interface{}) (count int, err error) {
	return MdbCollection(collection).Find(query).Count()
}

// MDbReserveID reserves the next sequential id for a collection using the
// counter collection. Sequential ids keep case and reminder numbers short
// enough to type in chat.
func MDbReserveID(collection models.MongoDbCollection) (id int64, err error) {
	var counter struct {
		Next int64 `bson:"next"`
	}

	_, err = GetMDb().C(models.CounterTable.String()).Find(bson.M{"_id": collection.String()}).Apply(mgo.Change{
		Update:    bson.M{"$inc": bson.M{"next": 1}},
		Upsert:    true,
		ReturnNew: true,
	}, &counter)
	if err != nil {
		return 0, errors.Wrap(err, "reserving sequential id")
	}

	return counter.Next, nil
}

// MdbIdToHuman returns a human readable ID version of a ObjectID
func MdbIdToHuman(id bson.ObjectId) (text string) {
	return fmt.Sprintf(`%x`, string(id))
}

// HumanToMdbId returns an ObjectID from a human readable ID
func HumanToMdbId(text string) (id bson.ObjectId) {
	if bson.IsObjectIdHex(text) {
		return bson.ObjectIdHex(text)
	}
	return id
}

// IsMdbNotFound returns true if the given error is a not found error from
// MongoDB, includes errors from invalid object IDs
func IsMdbNotFound(err error) (notFound bool) {
	if err != nil {
		if strings.Contains(err.Error(), "not found") ||
			strings.Contains(err.Error(), "ObjectIDs must be exactly 12 bytes long") {
			return true
		}
	}
	return false
}

// EnsureMDbIndexes creates the indexes queries depend on. Existing matching
// indexes are no-ops for mgo.
func EnsureMDbIndexes() {
	log := cache.GetLogger().WithField("module", "mdb")

	indexes := map[models.MongoDbCollection][]mgo.Index{
		models.MemberTable: {
			{Key: []string{"_id.guild_id", "xp"}},
		},
		models.ActionTable: {
			{Key: []string{"target_id", "type"}},
			{Key: []string{"resolved", "expires_at"}},
		},
		models.TagTable: {
			{Key: []string{"name"}, Unique: true},
		},
		models.GiveawayEntryTable: {
			{Key: []string{"giveaway_id", "user_id"}, Unique: true},
		},
		models.ReminderTable: {
			{Key: []string{"resolved", "expires_at"}},
		},
		models.MessageTable: {
			{Key: []string{"channel_id"}},
		},
		models.TicketTable: {
			{Key: []string{"thread_id"}},
			{Key: []string{"status_message_id"}},
		},
	}

	for collection, collectionIndexes := range indexes {
		for _, index := range collectionIndexes {
			err := MdbCollection(collection).EnsureIndex(index)
			if err != nil {
				log.Error("failed to ensure index on ", collection.String(), ": ", err.Error())
			}
		}
	}
}
